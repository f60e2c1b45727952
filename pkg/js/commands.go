// Package js builds the client-side commands the wizard sends with a "js"
// push: focusing a field, scrolling the form into view and blocking alerts.
// The browser client parses each call and dispatches it to its
// liveview.JS object; nothing is evaluated as code.
package js

import (
	"encoding/json"
	"strings"
)

// Command represents a JavaScript command to execute on the client.
type Command interface {
	// ToJS returns the JavaScript code to execute.
	ToJS() string
}

// Commands holds a sequence of commands.
type Commands []Command

// ToJS returns the JavaScript for all commands.
func (cs Commands) ToJS() string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		if c == nil {
			continue
		}
		parts = append(parts, c.ToJS())
	}
	return strings.Join(parts, ";")
}

// List returns each command's call, skipping nil entries. This is the
// payload of a "js" push.
func (cs Commands) List() []string {
	list := make([]string, 0, len(cs))
	for _, c := range cs {
		if c == nil {
			continue
		}
		list = append(list, c.ToJS())
	}
	return list
}

// String implements fmt.Stringer.
func (cs Commands) String() string {
	return cs.ToJS()
}

// Empty reports whether there is nothing to execute.
func (cs Commands) Empty() bool {
	for _, c := range cs {
		if c != nil {
			return false
		}
	}
	return true
}

type jsCommand struct {
	code string
}

func (c jsCommand) ToJS() string {
	return c.code
}

func (c jsCommand) String() string {
	return c.code
}

// JS is the namespace for JavaScript commands.
var JS = jsNamespace{}

type jsNamespace struct{}

// Focus focuses the first element matching selector.
func (jsNamespace) Focus(selector string) Command {
	return call("focus", selector)
}

// ScrollIntoView smoothly scrolls the element into view, aligned to its top.
func (jsNamespace) ScrollIntoView(selector string) Command {
	return call("scrollIntoView", selector)
}

// Alert shows a blocking message.
func (jsNamespace) Alert(text string) Command {
	return call("alert", text)
}

func call(fn string, args ...string) Command {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quote(a)
	}
	return jsCommand{code: "liveview.JS." + fn + "(" + strings.Join(quoted, ",") + ")"}
}

// quote renders s as a JavaScript string literal. JSON strings are valid
// JavaScript and encoding/json escapes <, > and & for script contexts.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
