package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/services"
	"github.com/desertthunder/freemovies/internal/shared"
)

// APIGet makes a direct GET request to the OMDb API and prints the raw response.
//
// The query argument is an OMDb query string such as "s=batman&page=2" or "?i=tt0372784".
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("query")
	params, err := services.ParseQuery(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if len(params) == 0 {
		return fmt.Errorf("%w: query is required, e.g. s=batman", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "query", params.Encode())

	resp, err := r.api.Get(ctx, params)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
