//go:build depot_debug

package depot

const debugging = true

func assert(cond bool, message string) {
	if !cond {
		panic(message)
	}
}
