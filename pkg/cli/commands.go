// Zaparoo Shelf
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Shelf.
//
// Zaparoo Shelf is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Shelf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Shelf.  If not, see <http://www.gnu.org/licenses/>.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database/catalogdb"
	"github.com/rs/zerolog/log"
)

// launchTimeout is negative so -launch waits for as long as the game runs.
const launchTimeout = -1

func absArg(name, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%s: %w", name, ErrMissingValue)
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", value, err)
	}
	return abs, nil
}

func call(ctx context.Context, api client.APIClient, method string, params, result any) error {
	p := ""
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("error encoding params: %w", err)
		}
		p = string(data)
	}

	resp, err := api.Call(ctx, method, p)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("error calling API")
		return fmt.Errorf("error calling %s: %w", method, err)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(resp), result); err != nil {
		return fmt.Errorf("error decoding %s response: %w", method, err)
	}
	return nil
}

func formatPlaytime(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Truncate(time.Second).String()
}

func printGames(out io.Writer, games []models.GameResponse) {
	if len(games) == 0 {
		_, _ = fmt.Fprintln(out, "No games found.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tPLAYTIME\tPATH")
	for i := range games {
		name := games[i].Name
		if games[i].Running {
			name += " *"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", name, formatPlaytime(games[i].Playtime), games[i].Path)
	}
	_ = tw.Flush()
}

// Run performs the action selected by the parsed flags against the service
// API and prints the outcome to out.
func (f *Flags) Run(ctx context.Context, fs *flag.FlagSet, api client.APIClient, out io.Writer) error {
	switch {
	case isFlagPassed(fs, "add"):
		return f.runAdd(ctx, api, out)
	case isFlagPassed(fs, "remove"):
		return runRemove(ctx, api, out, *f.Remove)
	case isFlagPassed(fs, "search"):
		return runSearch(ctx, api, out, *f.Search)
	case *f.List:
		return runList(ctx, api, out)
	case isFlagPassed(fs, "launch"):
		return runLaunch(ctx, api, out, *f.Launch)
	case isFlagPassed(fs, "cover"):
		return runCover(ctx, api, out, *f.Cover)
	case isFlagPassed(fs, "scan"):
		return runScan(ctx, api, out, *f.Scan)
	case isFlagPassed(fs, "export"):
		return runExport(ctx, api, out, *f.Export)
	case isFlagPassed(fs, "api"):
		return runAPI(ctx, api, out, *f.API)
	}
	return nil
}

func (f *Flags) runAdd(ctx context.Context, api client.APIClient, out io.Writer) error {
	path, err := absArg("add", *f.Add)
	if err != nil {
		return err
	}
	params := models.AddGameParams{Path: path}
	if *f.Name != "" {
		params.Name = f.Name
	}

	var game models.GameResponse
	if err := call(ctx, api, models.MethodGamesAdd, params, &game); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Added %s (%s)\n", game.Name, game.Path)
	return nil
}

func runRemove(ctx context.Context, api client.APIClient, out io.Writer, value string) error {
	path, err := absArg("remove", value)
	if err != nil {
		return err
	}

	var resp models.RemoveGameResponse
	if err := call(ctx, api, models.MethodGamesRemove, models.PathParams{Path: path}, &resp); err != nil {
		return err
	}
	if resp.Removed {
		_, _ = fmt.Fprintf(out, "Removed %s\n", path)
	} else {
		_, _ = fmt.Fprintf(out, "Not in catalog: %s\n", path)
	}
	return nil
}

func runSearch(ctx context.Context, api client.APIClient, out io.Writer, query string) error {
	var resp models.GamesResponse
	if err := call(ctx, api, models.MethodGamesSearch, models.SearchParams{Query: query}, &resp); err != nil {
		return err
	}
	printGames(out, resp.Games)
	return nil
}

func runList(ctx context.Context, api client.APIClient, out io.Writer) error {
	var resp models.GamesResponse
	if err := call(ctx, api, models.MethodGames, nil, &resp); err != nil {
		return err
	}
	printGames(out, resp.Games)
	return nil
}

// matchLaunchSession accepts the playtime update of the session started by
// the games.launch call that returned result.
func matchLaunchSession(result string, n models.Notification) bool {
	if n.Method != models.NotificationPlaytimeUpdated {
		return false
	}
	var launch models.LaunchResponse
	if err := json.Unmarshal([]byte(result), &launch); err != nil {
		return false
	}
	var update models.PlaytimeUpdatedPayload
	if err := json.Unmarshal(n.Params, &update); err != nil {
		return false
	}
	return launch.SessionID != "" && update.SessionID == launch.SessionID
}

func runLaunch(ctx context.Context, api client.APIClient, out io.Writer, value string) error {
	path, err := absArg("launch", value)
	if err != nil {
		return err
	}
	params, err := json.Marshal(models.PathParams{Path: path})
	if err != nil {
		return fmt.Errorf("error encoding params: %w", err)
	}

	result, n, err := api.CallAndWait(ctx, launchTimeout, models.MethodGamesLaunch, string(params), matchLaunchSession)
	if err != nil {
		if result != "" {
			// started, but we stopped waiting
			_, _ = fmt.Fprintf(out, "Launched %s\n", path)
		}
		return fmt.Errorf("error launching %s: %w", path, err)
	}

	var update models.PlaytimeUpdatedPayload
	if err := json.Unmarshal(n.Params, &update); err != nil {
		return fmt.Errorf("error decoding playtime update: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Played %s for %s (total %s, exit code %d)\n",
		path, formatPlaytime(update.Session), formatPlaytime(update.Playtime), update.ExitCode)
	if !update.Credited {
		_, _ = fmt.Fprintln(out, "Game was removed while running, playtime was not recorded.")
	}
	return nil
}

func runCover(ctx context.Context, api client.APIClient, out io.Writer, value string) error {
	game, image, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("cover: expected path=image: %w", ErrMissingValue)
	}
	path, err := absArg("cover", game)
	if err != nil {
		return err
	}
	params := models.CoverParams{Path: path}
	if image != "" {
		params.Cover, err = filepath.Abs(image)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", image, err)
		}
	}

	var resp models.CoverResponse
	if err := call(ctx, api, models.MethodGamesCover, params, &resp); err != nil {
		return err
	}
	switch {
	case !resp.Updated:
		_, _ = fmt.Fprintf(out, "Cover unchanged for %s\n", path)
	case params.Cover == "":
		_, _ = fmt.Fprintf(out, "Cleared cover for %s\n", path)
	default:
		_, _ = fmt.Fprintf(out, "Set cover for %s\n", path)
	}
	return nil
}

func runScan(ctx context.Context, api client.APIClient, out io.Writer, value string) error {
	dir, err := absArg("scan", value)
	if err != nil {
		return err
	}

	var resp models.ScanResponse
	if err := call(ctx, api, models.MethodGamesScan, models.ScanParams{Dir: dir}, &resp); err != nil {
		// a scan that failed part way still reports what it added
		var rpcErr *client.RPCError
		if errors.As(err, &rpcErr) && len(rpcErr.Data) > 0 &&
			json.Unmarshal(rpcErr.Data, &resp) == nil {
			printScanned(out, &resp)
			_, _ = fmt.Fprintf(out, "Scan stopped: %d added before the error\n", len(resp.Added))
		}
		return err
	}
	printScanned(out, &resp)
	_, _ = fmt.Fprintf(out, "Scan complete: %d added, %d skipped\n", len(resp.Added), resp.Skipped)
	return nil
}

func printScanned(out io.Writer, resp *models.ScanResponse) {
	for i := range resp.Added {
		_, _ = fmt.Fprintf(out, "Added %s (%s)\n", resp.Added[i].Name, resp.Added[i].Path)
	}
}

func runExport(ctx context.Context, api client.APIClient, out io.Writer, dest string) (err error) {
	if dest == "" {
		return fmt.Errorf("export: %w", ErrMissingValue)
	}

	var resp models.GamesResponse
	if err := call(ctx, api, models.MethodGames, nil, &resp); err != nil {
		return err
	}
	entries := make([]catalog.GameEntry, 0, len(resp.Games))
	for i := range resp.Games {
		g := &resp.Games[i]
		entries = append(entries, catalog.GameEntry{
			AddedDate: g.AddedDate,
			Name:      g.Name,
			Path:      g.Path,
			Cover:     g.Cover,
			Playtime:  g.Playtime,
		})
	}

	if dest == "-" {
		return catalogdb.ExportCSV(out, entries) //nolint:wrapcheck // already wrapped
	}

	file, err := os.Create(dest) //nolint:gosec // user chosen export path
	if err != nil {
		return fmt.Errorf("error creating export file: %w", err)
	}
	defer func() {
		if cErr := file.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("error closing export file: %w", cErr)
		}
	}()
	if err := catalogdb.ExportCSV(file, entries); err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	_, _ = fmt.Fprintf(out, "Exported %d games to %s\n", len(entries), dest)
	return nil
}

func runAPI(ctx context.Context, api client.APIClient, out io.Writer, value string) error {
	if value == "" {
		return fmt.Errorf("api: %w", ErrMissingValue)
	}

	method, params, _ := strings.Cut(value, ":")
	resp, err := api.Call(ctx, method, params)
	if err != nil {
		log.Error().Err(err).Msg("error calling API")
		return fmt.Errorf("error calling API: %w", err)
	}
	_, _ = fmt.Fprintln(out, resp)
	return nil
}
