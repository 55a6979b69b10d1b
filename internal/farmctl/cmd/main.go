// Command farmctl is the farmai command line client.
//
// Usage:
//
//	farmctl analyze --polygon "lng,lat;lng,lat;..."
//	farmctl swarm --id <analysis-id>
//	farmctl watch
//
// See --help for all commands.
package main

import "github.com/LeonardoBeccarini/farmai/internal/farmctl"

func main() {
	farmctl.Execute()
}
