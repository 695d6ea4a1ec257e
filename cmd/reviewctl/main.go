// Reviewctl inspects and moderates guest reviews from the terminal.
//
// Usage:
//
//	reviewctl reviews --property "Shoreditch Heights" --sort rating
//	reviewctl stats
//	reviewctl trends
//	reviewctl property "Shoreditch Heights"
//	reviewctl approve 7453 7454
//	reviewctl approve --property "Camden Square" --min-rating 9
//	reviewctl approve --revoke 7453
package main

import (
	"os"

	"flexliving_reviews/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
