package trainer_test

import (
	"fmt"
	"math/rand"

	"gitlab.com/stephen-fox/pvzkit/trainer"
)

func ExampleBuildSpawnList() {
	var types trainer.SpawnTypes
	types[trainer.ZombieRegular] = true
	types[2] = true
	types[trainer.ZombieFlag] = true

	list := trainer.BuildSpawnList(types, trainer.SpawnOptions{}, rand.New(rand.NewSource(1)).Intn)

	fmt.Println(list[0][:6])
	fmt.Println(list[9][:3])

	// Output:
	// [2 0 2 0 2 0]
	// [1 0 2]
}
