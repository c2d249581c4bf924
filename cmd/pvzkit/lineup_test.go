package main

import (
	"testing"

	"gopkg.in/yaml.v3"

	"gitlab.com/stephen-fox/pvzkit/lineup"
)

func TestBoard_Snapshot(t *testing.T) {
	const doc = `
scene: pool
rake_row: 2
cells:
  - row: 0
    col: 3
    plant: 8
    awake: true
    base: lily_pad
  - row: 5
    col: 8
    pumpkin: true
    pumpkin_imitater: true
    ladder: true
`

	var b board
	err := yaml.Unmarshal([]byte(doc), &b)
	if err != nil {
		t.Fatal(err)
	}

	s, err := b.snapshot()
	if err != nil {
		t.Fatal(err)
	}

	var expected lineup.Snapshot
	expected.Scene = lineup.Pool
	expected.RakeRow = 2
	expected.Cells[0][3] = lineup.Cell{
		Plant: lineup.Plant{Present: true, Type: 8, Awake: true},
		Base:  lineup.LilyPad,
	}
	expected.Cells[5][8] = lineup.Cell{
		Pumpkin:         true,
		PumpkinImitater: true,
		Ladder:          true,
	}

	if s != expected {
		t.Fatalf("expected %+v - got %+v", expected, s)
	}

	again, err := boardFromSnapshot(s).snapshot()
	if err != nil {
		t.Fatal(err)
	}

	if again != s {
		t.Fatalf("expected the board to survive a round trip - got %+v", again)
	}
}

func TestBoard_SnapshotErrors(t *testing.T) {
	docs := map[string]string{
		"UnknownScene": "scene: beach\n",
		"UnknownBase":  "scene: day\ncells:\n  - {row: 0, col: 0, base: boat}\n",
		"OutOfBoard":   "scene: day\ncells:\n  - {row: 0, col: 9}\n",
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			var b board
			err := yaml.Unmarshal([]byte(doc), &b)
			if err != nil {
				t.Fatal(err)
			}

			_, err = b.snapshot()
			if err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
