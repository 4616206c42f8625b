// Package hal defines the hardware collaborator contracts consumed by the
// device management core, together with reference implementations used by
// tests and the simulator.
//
// The core does not talk to hardware directly. Platform code implements the
// small interfaces in this package (persistent storage, flash banks,
// retained memory, board identity, transport) and injects them as a
// Hardware bundle:
//
//	hw := hal.Hardware{
//	    Storage:  myEEPROM,
//	    Firmware: myFlash,
//	    Board:    myBoard,
//	    Retained: myNoInitRegion,
//	}
//	dev := device.New(hw, myTransport, nil, meta)
//
// # Reference Implementations
//
// The Mem* types model a device entirely in memory: MemStorage is an
// 0xFF-erased persistent area, MemFirmware carries an active image and a
// secondary bank, MemRetained models a no-init RAM region that survives a
// warm reset, and MemTransport queues outbound frames for inspection.
// FileStorage persists the configuration area in a regular file so a
// simulated device keeps its settings across process restarts.
//
// # Non-Returning Operations
//
// On real hardware, Firmware.Reset and Firmware.SecondaryActivate never
// return; the device resets. The reference implementations do return so
// that tests can observe the call, which is why callers in the core are
// written with an explicit return immediately after invoking them.
package hal
