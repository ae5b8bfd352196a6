// ABOUTME: Version constants
// ABOUTME: Identifies the player build in logs
package version

const (
	Version      = "0.1.0"
	Product      = "LAF Player"
	Manufacturer = "Limitless Audio"
)
