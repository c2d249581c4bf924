package lineup_test

import (
	"fmt"
	"log"

	"gitlab.com/stephen-fox/pvzkit/lineup"
)

func ExampleEncode() {
	board := lineup.Snapshot{
		Scene:   lineup.Pool,
		RakeRow: 1,
	}

	// Cob cannon on the third row.
	board.Cells[2][0].Plant = lineup.Plant{Present: true, Type: 47}
	board.Cells[2][0].Pumpkin = true

	token, err := lineup.Encode(board)
	if err != nil {
		log.Fatalln(err)
	}

	decoded, err := lineup.Decode(token)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println(decoded.Scene, decoded.RakeRow, decoded.Rows())
	fmt.Printf("%+v\n", decoded.Cells[2][0])

	// Output:
	// pool 1 6
	// {Plant:{Present:true Type:47 Imitater:false Awake:false} Base:none BaseImitater:false Pumpkin:true PumpkinImitater:false Coffee:false CoffeeImitater:false Ladder:false}
}
