// Command wetdirt serves WebFinger lookups and manages directory accounts.
package main

func main() {
	Execute()
}
