// Command mesisim simulates private caches kept coherent over a snooping bus.
package main

import "github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mesisim/cmd"

func main() {
	cmd.Execute()
}
