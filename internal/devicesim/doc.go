// Package devicesim simulates a Zrna device for tests and demos.
//
// Device holds an in-memory circuit and answers decoded requests. Stream,
// Register and Bus put it behind the three link variants so that clients can
// be exercised end to end without hardware:
//
//	sim := devicesim.New(devicesim.Config{})
//	client := interaction.NewClient(transport.NewPolled(sim.Bus(), cfg), interaction.ClientConfig{})
package devicesim
