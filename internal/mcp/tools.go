package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/tracker"
	"github.com/claude/wodlog/internal/training"
)

// --- Tool definitions ---

var toolGetOneRepMax = mcp.NewTool("get_one_rep_max",
	mcp.WithDescription("Get the current one-rep max (kg) and its history for an exercise, or every current max when no exercise is given."),
	mcp.WithString("exercise", mcp.Description("Catalog exercise id (e.g. 'Back Squat', 'Deadlift'). Omit to list all maxes.")),
)

var toolSuggestLoad = mcp.NewTool("suggest_load",
	mcp.WithDescription("Suggest a working weight. With a percent, returns that percentage of the one-rep max. Otherwise returns the recommended load window for the reps and objective, narrowed for technical lifts."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Catalog exercise id")),
	mcp.WithNumber("reps", mcp.Description("Reps per set. Required unless percent is given.")),
	mcp.WithNumber("percent", mcp.Description("Percentage of the one-rep max, as a whole number (e.g. 75)")),
	mcp.WithString("objective", mcp.Description("Training objective. Defaults to 'default'."), mcp.Enum("strength", "hypertrophy", "technique", "default")),
	mcp.WithNumber("target", mcp.Description("Goal one-rep max in kg, for a progression estimate")),
	mcp.WithNumber("weeks", mcp.Description("Weeks available to reach the target")),
)

var toolPercentOfMax = mcp.NewTool("percent_of_max",
	mcp.WithDescription("Express a weight as a whole-number percentage of the exercise's current one-rep max."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Catalog exercise id")),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Weight in kg")),
)

var toolLogEntry = mcp.NewTool("log_entry",
	mcp.WithDescription("Add a set to the session log. Returns the stored entry and, when the set implies a higher one-rep max, an improvement candidate (not applied)."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Catalog exercise id")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Reps per set")),
	mcp.WithNumber("sets", mcp.Description("Number of sets. Defaults to 1.")),
	mcp.WithNumber("weight", mcp.Description("Weight in kg")),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("format", mcp.Description("Workout format (e.g. AMRAP, EMOM, For Time)")),
	mcp.WithString("elapsed_time", mcp.Description("Elapsed time, e.g. '7:30'")),
	mcp.WithNumber("distance_km", mcp.Description("Distance in km")),
	mcp.WithString("part", mcp.Description("Session part label (A, B, C or D)")),
)

var toolGetDaySummary = mcp.NewTool("get_day_summary",
	mcp.WithDescription("Summarise one training day: load, sets, rep volume, distance, best metcon time, intensity blocks and a suggestion for the next session."),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetPerformance = mcp.NewTool("get_performance",
	mcp.WithDescription("Rankings: heaviest training days by total load, one-rep maxes (with body-weight multiples when known), and best metcon times per exercise."),
	mcp.WithNumber("limit", mcp.Description("Ranking length. Defaults to the server setting.")),
)

var toolParseBoard = mcp.NewTool("parse_board",
	mcp.WithDescription("Parse whiteboard text (one exercise per line, optional 'Parte A' / 'B)' headers) into session entries. Nothing is stored unless save is true."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Board text, one line per block")),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithBoolean("save", mcp.Description("Store the parsed entries. Defaults to false.")),
)

// --- Tool handlers ---

// queryFailed logs a data-source failure and reports it to the client.
func (h *handlers) queryFailed(tool string, err error) (*mcp.CallToolResult, error) {
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("query failed: " + err.Error()), nil
}

// currentMax resolves the one-rep max of exercise. ok is false when none is
// recorded.
func (h *handlers) currentMax(ctx context.Context, exercise string) (MaxHistory, bool, error) {
	mh, err := h.ds.MaxHistory(ctx, exercise)
	if err != nil {
		return MaxHistory{}, false, err
	}
	return mh, mh.Current != nil, nil
}

func (h *handlers) getOneRepMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise := strings.TrimSpace(req.GetString("exercise", ""))
	if exercise == "" {
		maxes, err := h.ds.Maxes(ctx)
		if err != nil {
			return h.queryFailed("get_one_rep_max", err)
		}
		return jsonResult(maxes)
	}
	mh, ok, err := h.currentMax(ctx, exercise)
	if err != nil {
		return h.queryFailed("get_one_rep_max", err)
	}
	if !ok {
		return mcp.NewToolResultError("no one-rep max recorded for " + exercise), nil
	}
	return jsonResult(map[string]any{
		"exercise": exercise,
		"value":    *mh.Current,
		"history":  mh.History,
	})
}

func (h *handlers) suggestLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	exercise = strings.TrimSpace(exercise)
	mh, ok, err := h.currentMax(ctx, exercise)
	if err != nil {
		return h.queryFailed("suggest_load", err)
	}
	if !ok {
		return mcp.NewToolResultError("no one-rep max recorded for " + exercise), nil
	}
	oneRM := *mh.Current

	if percent := req.GetFloat("percent", 0); percent != 0 {
		weight, ok := training.WeightForPercent(oneRM, percent)
		if !ok {
			return mcp.NewToolResultError("percent must be a positive number"), nil
		}
		return jsonResult(map[string]any{
			"exercise":    exercise,
			"one_rep_max": oneRM,
			"percent":     percent,
			"weight":      weight,
		})
	}

	ex, err := h.ds.Exercise(ctx, exercise)
	if err != nil {
		return h.queryFailed("suggest_load", err)
	}
	obj, _ := training.ParseObjective(req.GetString("objective", ""))
	advice, ok := training.Advise(oneRM, req.GetInt("reps", 0), obj, ex.Category == models.CategoryTechnical)
	if !ok {
		return mcp.NewToolResultError("reps must be at least 1"), nil
	}
	out := map[string]any{"exercise": exercise, "one_rep_max": oneRM, "advice": advice}
	if target := req.GetFloat("target", 0); target > 0 {
		profile, err := h.ds.Profile(ctx)
		if err != nil {
			return h.queryFailed("suggest_load", err)
		}
		out["projection"] = training.ProjectGoal(oneRM, target, req.GetInt("weeks", 0), profile.Level)
	}
	return jsonResult(out)
}

func (h *handlers) percentOfMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	exercise = strings.TrimSpace(exercise)
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	mh, ok, err := h.currentMax(ctx, exercise)
	if err != nil {
		return h.queryFailed("percent_of_max", err)
	}
	if !ok {
		return mcp.NewToolResultError("no one-rep max recorded for " + exercise), nil
	}
	percent, ok := training.PercentForWeight(*mh.Current, weight)
	if !ok {
		return mcp.NewToolResultError("weight must be a positive number"), nil
	}
	return jsonResult(map[string]any{
		"exercise":    exercise,
		"one_rep_max": *mh.Current,
		"weight":      weight,
		"percent":     percent,
	})
}

func (h *handlers) logEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	in := tracker.EntryInput{
		Date:        req.GetString("date", ""),
		Part:        req.GetString("part", ""),
		Format:      req.GetString("format", ""),
		ExerciseID:  exercise,
		Sets:        req.GetInt("sets", 1),
		Reps:        req.GetInt("reps", 0),
		WeightKg:    req.GetFloat("weight", 0),
		ElapsedTime: req.GetString("elapsed_time", ""),
		DistanceKm:  req.GetFloat("distance_km", 0),
	}
	entry, imp, err := h.ds.AddEntry(ctx, in)
	if err != nil && !errors.Is(err, tracker.ErrPersistence) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp log_entry", "error", err)
		return mcp.NewToolResultError("entry kept in memory but not saved: " + err.Error()), nil
	}
	return jsonResult(map[string]any{"entry": entry, "improvement": imp})
}

func (h *handlers) getDaySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := h.ds.DaySummary(ctx, req.GetString("date", ""))
	if err != nil {
		return h.queryFailed("get_day_summary", err)
	}
	return jsonResult(sum)
}

func (h *handlers) getPerformance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	perf, err := h.ds.Performance(ctx, req.GetInt("limit", h.topN))
	if err != nil {
		return h.queryFailed("get_performance", err)
	}
	return jsonResult(perf)
}

func (h *handlers) parseBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	save := req.GetBool("save", false)

	res, err := h.ds.ParseBoard(ctx, text, req.GetString("date", ""), save)
	switch {
	case err == nil:
		return jsonResult(res)
	case !save && errors.Is(err, board.ErrNoEntries):
		return mcp.NewToolResultError("no known exercise found on the board"), nil
	case !save:
		return mcp.NewToolResultError(err.Error()), nil
	}
	h.log.Error("mcp parse_board", "error", err)
	if res != nil && res.Message != "" {
		return mcp.NewToolResultError(res.Message), nil
	}
	return mcp.NewToolResultError("ingest failed: " + err.Error()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
