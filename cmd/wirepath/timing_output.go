package main

import (
	"fmt"
	"io"
	"time"

	"wirepath/internal/observ"
	"wirepath/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings, report observ.Report) {
	if out == nil {
		return
	}
	for _, stage := range []pipeline.Stage{pipeline.StageRegister, pipeline.StageResolve, pipeline.StageAggregate} {
		if timings.Has(stage) {
			fmt.Fprintf(out, "%s %.1f ms\n", stage, toMillis(timings.Duration(stage)))
		}
	}
	for _, phase := range report.Phases {
		if phase.Note != "" {
			fmt.Fprintf(out, "  %s %.1f ms (%s)\n", phase.Name, phase.DurationMS, phase.Note)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
