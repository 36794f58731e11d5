// The painel command runs the price board and promotional video player.
package main

import "github.com/wrale/wrale-painel/internal/painel/cmd"

func main() {
	cmd.Execute()
}
