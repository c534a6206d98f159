// Command pansqlc compiles PanSQL scripts into generated program source
// plus the project and connectors manifests their runtime needs.
package main

func main() {
	Execute()
}
