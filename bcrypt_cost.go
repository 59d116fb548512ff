//go:build !race

package tube

func passwordHashCost() int {
	return 12
}
