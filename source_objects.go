package main

import "fmt"

// SourceObjects lists non-table objects found while introspecting. They are
// not part of a snapshot and are only reported.
type SourceObjects struct {
	Views    []string
	Routines []string
	Triggers []string
}

func sourceObjectWarnings(objs SourceObjects) []string {
	if len(objs.Views) == 0 && len(objs.Routines) == 0 && len(objs.Triggers) == 0 {
		return nil
	}

	warnings := []string{fmt.Sprintf(
		"source contains non-table objects not captured in the snapshot (%d views, %d routines, %d triggers)",
		len(objs.Views), len(objs.Routines), len(objs.Triggers),
	)}
	for _, v := range objs.Views {
		warnings = append(warnings, "view: "+v)
	}
	for _, r := range objs.Routines {
		warnings = append(warnings, "routine: "+r)
	}
	for _, t := range objs.Triggers {
		warnings = append(warnings, "trigger: "+t)
	}
	return warnings
}
