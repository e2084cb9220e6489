// Package names generates the randomized resource names the suite creates
// in the cloud under test.
//
// Every resource name starts with a fixed prefix so that leftovers from
// crashed runs are recognizable and can be swept by hand.
package names

import (
	"fmt"

	"github.com/google/uuid"
)

// Prefix marks every resource the suite creates.
const Prefix = "novacheck"

// Generate returns a name of the form "novacheck-<kind>-<8 hex chars>".
// The suffix comes from a random UUID, so collisions between concurrent
// runs against the same cloud are not a practical concern.
func Generate(kind string) string {
	suffix := uuid.New().String()[:8]
	if kind == "" {
		return fmt.Sprintf("%s-%s", Prefix, suffix)
	}
	return fmt.Sprintf("%s-%s-%s", Prefix, kind, suffix)
}
