package codec

import (
	"reflect"
	"testing"
	"time"
)

type document struct {
	ID      string    `json:"id" msgpack:"id"`
	Name    string    `json:"name" msgpack:"name"`
	Level   int64     `json:"level" msgpack:"level"`
	Created time.Time `json:"created" msgpack:"created"`
}

func sampleDocument() document {
	return document{
		ID:      "d1",
		Name:    "ana",
		Level:   7,
		Created: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	codecs := []Codec{JSON{}, Msgpack{}}

	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			in := sampleDocument()
			data, err := c.Marshal(in)
			if err != nil {
				t.Fatal(err)
			}

			var out document
			if err := c.Unmarshal(data, &out); err != nil {
				t.Fatal(err)
			}
			if !out.Created.Equal(in.Created) {
				t.Fatalf("created %v, want %v", out.Created, in.Created)
			}
			out.Created, in.Created = time.Time{}, time.Time{}
			if out != in {
				t.Fatalf("got %+v, want %+v", out, in)
			}

			// Slices must survive as ordered sequences.
			docs := []document{sampleDocument(), {ID: "d2", Name: "bob"}}
			data, err = c.Marshal(docs)
			if err != nil {
				t.Fatal(err)
			}
			var outDocs []document
			if err := c.Unmarshal(data, &outDocs); err != nil {
				t.Fatal(err)
			}
			if len(outDocs) != 2 || outDocs[0].ID != "d1" || outDocs[1].ID != "d2" {
				t.Fatalf("got %+v", outDocs)
			}
		})
	}
}

func TestCodecs_Names(t *testing.T) {
	if (JSON{}).Name() == (Msgpack{}).Name() {
		t.Fatal("codecs must be distinguishable by name")
	}
}

func TestCodecs_NotInterchangeable(t *testing.T) {
	data, err := Msgpack{}.Marshal(sampleDocument())
	if err != nil {
		t.Fatal(err)
	}

	var out document
	if err := (JSON{}).Unmarshal(data, &out); err == nil && reflect.DeepEqual(out, sampleDocument()) {
		t.Fatal("msgpack bytes decoded as json")
	}
}
