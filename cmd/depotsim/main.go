// Command depotsim drives a magazine depot with a synthetic
// block cache workload and reports its statistics.
package main

func main() { execute() }
