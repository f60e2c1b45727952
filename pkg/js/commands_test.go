package js

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"focus", JS.Focus(`[name="companyName"]`), `liveview.JS.focus("[name=\"companyName\"]")`},
		{"scroll", JS.ScrollIntoView("#carbonForm"), `liveview.JS.scrollIntoView("#carbonForm")`},
		{"alert", JS.Alert("Draft saved locally."), `liveview.JS.alert("Draft saved locally.")`},
		{"alert quotes", JS.Alert(`say "hi"`), `liveview.JS.alert("say \"hi\"")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.ToJS())
		})
	}
}

func TestCommandsEscapeMarkup(t *testing.T) {
	got := JS.Alert("</script><b>").ToJS()
	assert.NotContains(t, got, "</script>")
	assert.Contains(t, got, `\u003c/script\u003e`)
}

func TestCommandsJoin(t *testing.T) {
	cs := Commands{JS.Focus("#a"), nil, JS.Alert("x")}
	assert.Equal(t, `liveview.JS.focus("#a");liveview.JS.alert("x")`, cs.ToJS())
	assert.False(t, cs.Empty())
	assert.True(t, Commands{nil}.Empty())
	assert.True(t, Commands(nil).Empty())
}

func TestCommandsList(t *testing.T) {
	cmds := Commands{JS.Alert("hi"), nil, JS.Focus("#email")}

	assert.Equal(t, []string{
		`liveview.JS.alert("hi")`,
		`liveview.JS.focus("#email")`,
	}, cmds.List())
	assert.Empty(t, Commands{nil}.List())
}
