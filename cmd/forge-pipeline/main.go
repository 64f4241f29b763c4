// forge-pipeline runs release pipeline definitions: a gated DAG of stages that
// tests, builds, publishes, scans, and verifies deployments, reporting results
// back to the change request that produced the commit.
package main

func main() {
	Execute()
}
