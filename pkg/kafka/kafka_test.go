package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

type payload struct {
	Query   string `json:"query"`
	Matches int    `json:"matches"`
}

func TestEncodeDecode(t *testing.T) {
	msg, err := encode(Event{Key: "q", Type: "query", Value: payload{Query: "cat NEAR dog", Matches: 3}})
	if err != nil {
		t.Fatal(err)
	}
	got := decode(kafka.Message{Key: msg.Key, Value: msg.Value, Headers: msg.Headers})
	if got.Type != "query" || string(got.Key) != "q" {
		t.Errorf("decoded message = %+v", got)
	}
	p, err := DecodeJSON[payload](got.Value)
	if err != nil {
		t.Fatal(err)
	}
	if p.Query != "cat NEAR dog" || p.Matches != 3 {
		t.Errorf("payload = %+v", p)
	}
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	if _, err := encode(Event{Value: make(chan int)}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDecodeJSONError(t *testing.T) {
	if _, err := DecodeJSON[payload]([]byte("{")); err == nil {
		t.Fatal("expected an error")
	}
}
