// Command planc compiles model-written AssetOpsBench plans into validated task graphs.
package main

func main() {
	Execute()
}
