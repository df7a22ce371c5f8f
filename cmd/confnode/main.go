// Command confnode serves and inspects node classification data.
package main

func main() {
	Execute()
}
