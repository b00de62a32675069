// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/vidcollab/internal/app/system/eventbus"
	"github.com/dalemusser/vidcollab/internal/app/system/workers"
	"github.com/panjf2000/ants/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Broker is nil when amqp_url is blank.
	Broker *eventbus.Publisher

	// Background is filled in by BuildHandler and torn down by Shutdown.
	Background *Background
}

// Background holds the long-running workers started with the handler.
type Background struct {
	Scheduler *workers.Scheduler
	Pool      *ants.Pool
}
