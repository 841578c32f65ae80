// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/guard"
)

// DBDeps holds the back-end dependencies for the app. Persistence lives
// behind the cooperative API, so the "database" is the API client.
type DBDeps struct {
	API    *apiclient.Client
	Policy *guard.Policy
}
