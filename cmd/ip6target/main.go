// Command ip6target prints IPv6 scan targets from a list file or a prefix.
package main

import "github.com/zlobste/ip6target/internal/cli"

func main() {
	cli.Execute()
}
