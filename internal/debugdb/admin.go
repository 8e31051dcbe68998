package debugdb

import (
	"fmt"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/treecover.report/internal/httputil"
)

// AttachAdminRoutes mounts the debug index, the tailsql console and a
// table count endpoint under /debug/ on mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://treecover.db", db.DB, &tailsql.DBOptions{
		Label: "Tree cover mirror",
	})
	debug.Handle("tailsql/", "SQL console over the mirrored dataset", tsql.NewMux())

	debug.Handle("mirror", "Row counts of the mirrored tables", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counts, err := db.Counts(r.Context())
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, counts)
	}))
	return nil
}
