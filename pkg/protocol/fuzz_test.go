package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// FuzzJSONDecode checks that anything the JSON codec accepts survives a
// round trip.
func FuzzJSONDecode(f *testing.F) {
	f.Add([]byte(`{"ref":"1","topic":"lv:abc","event":"next","payload":{}}`))
	f.Add([]byte(`{"ref":"","topic":"","event":"","payload":null}`))
	f.Add([]byte(`{"ref":null,"topic":"test","event":"e"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`null`))
	f.Add([]byte(``))
	f.Add([]byte(`{"ref":"1","topic":"lv:abc","event":"goto_step","payload":{"step":3}}`))
	f.Add([]byte(`{"ref":"2","topic":"lv:abc","event":"change","payload":{"name":"companyName","value":"<b>"}}`))
	f.Add([]byte(`{malformed`))
	f.Add([]byte(`{"ref": 123}`))

	codec := NewJSONCodec()

	f.Fuzz(func(t *testing.T, data []byte) {
		msg, err := codec.Decode(data)
		if err != nil {
			return
		}

		out, err := codec.Encode(msg)
		if err != nil {
			t.Fatalf("encode after successful decode: %v", err)
		}

		again, err := codec.Decode(out)
		if err != nil {
			t.Fatalf("decode of re-encoded message: %v", err)
		}
		if msg.Event != again.Event || msg.Topic != again.Topic || msg.Ref != again.Ref {
			t.Fatalf("round trip changed message: %+v != %+v", msg, again)
		}
	})
}

func TestCodecs_RoundTrip(t *testing.T) {
	msg := Message{
		Ref:   "7",
		Topic: Topic("abc"),
		Event: "change",
		Payload: map[string]any{
			"name":  "companyName",
			"value": `<script>"x"</script>`,
		},
	}

	for _, name := range []string{"json", "msgpack"} {
		t.Run(name, func(t *testing.T) {
			codec, err := CodecByName(name)
			if err != nil {
				t.Fatal(err)
			}
			data, err := codec.Encode(msg)
			if err != nil {
				t.Fatal(err)
			}
			got, err := codec.Decode(data)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(msg, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("")
	if err != nil || c.Name() != "json" || c.Binary() {
		t.Fatalf("default codec = %v, %v", c, err)
	}
	c, err = CodecByName("msgpack")
	if err != nil || !c.Binary() {
		t.Fatalf("msgpack codec = %v, %v", c, err)
	}
	if _, err := CodecByName("phoenix"); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{float64(3), 3, true},
		{float64(2.5), 2, false},
		{int8(4), 4, true},
		{uint16(9), 9, true},
		{int64(12), 12, true},
		{"3", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToInt(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestReplies(t *testing.T) {
	r := ErrorReply("1", "lv:x", "boom")
	if r.Event != EventReply || r.Payload["status"] != StatusError {
		t.Fatalf("unexpected reply %+v", r)
	}
	if resp := r.Payload["response"].(map[string]any); resp["reason"] != "boom" {
		t.Fatalf("reason = %v", resp["reason"])
	}
}
