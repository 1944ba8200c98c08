package main

import "quickbidz-storefront/internal/cli"

func main() {
	cli.Execute()
}
