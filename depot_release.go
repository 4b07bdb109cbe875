//go:build !depot_debug

package depot

const debugging = false

func assert(bool, string) {}
