package skills

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

type UnknownCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// UnknownReport aggregates unresolved skill mentions across many CVs, used to
// decide which aliases or skills the dictionary is missing.
type UnknownReport struct {
	Processed      int                 `json:"processed"`
	Failed         int                 `json:"failed"`
	UniqueUnknowns int                 `json:"unique_unknowns"`
	TopUnknowns    []UnknownCount      `json:"top_unknowns"`
	PerCV          map[string][]string `json:"per_cv"`
}

type UnknownCollector struct {
	counts    map[string]int
	perCV     map[string][]string
	processed int
	failed    int
}

func NewUnknownCollector() *UnknownCollector {
	return &UnknownCollector{
		counts: make(map[string]int),
		perCV:  make(map[string][]string),
	}
}

func (c *UnknownCollector) Add(result *ExtractionResult) {
	c.processed++
	if len(result.UnknownSkills) == 0 {
		return
	}
	c.perCV[result.CVID] = append([]string(nil), result.UnknownSkills...)
	for _, s := range result.UnknownSkills {
		c.counts[s]++
	}
}

// AddFailure records a CV that could not be parsed.
func (c *UnknownCollector) AddFailure(cvID string) {
	c.failed++
	if _, ok := c.perCV[cvID]; !ok {
		c.perCV[cvID] = []string{}
	}
}

// Report builds the aggregate; limit <= 0 keeps every unknown skill.
// Skills are ordered by count descending, then by name.
func (c *UnknownCollector) Report(limit int) UnknownReport {
	top := make([]UnknownCount, 0, len(c.counts))
	for skill, count := range c.counts {
		top = append(top, UnknownCount{Skill: skill, Count: count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Skill < top[j].Skill
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}

	return UnknownReport{
		Processed:      c.processed,
		Failed:         c.failed,
		UniqueUnknowns: len(c.counts),
		TopUnknowns:    top,
		PerCV:          c.perCV,
	}
}

func (r UnknownReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"skill", "count"}); err != nil {
		return err
	}
	for _, u := range r.TopUnknowns {
		if err := cw.Write([]string{u.Skill, strconv.Itoa(u.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r UnknownReport) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Processed CVs: %d\nFailed CVs: %d\nUnique unknown skills: %d\n\nTop unknown skills:\n",
		r.Processed, r.Failed, r.UniqueUnknowns); err != nil {
		return err
	}
	for _, u := range r.TopUnknowns {
		if _, err := fmt.Fprintf(w, "- %s: %d\n", u.Skill, u.Count); err != nil {
			return err
		}
	}
	return nil
}
