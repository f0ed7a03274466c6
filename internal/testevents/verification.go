package testevents

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults runs sanity checks over the retrieved projections.
func verifyResults(team scoreResponse, scores []scoreResponse, awards []awardResponse, verbose bool) error {
	log.Println("verifying results...")

	if len(scores) == 0 {
		return fmt.Errorf("no staff scores to verify")
	}

	// Every score must land in the 0..100 band with a coherent grade.
	for _, sc := range scores {
		if sc.Total < 0 || sc.Total > 100 {
			return fmt.Errorf("staff %s score out of range: %d", sc.StaffID, sc.Total)
		}
		if sc.Tracked && sc.Grade == "" {
			return fmt.Errorf("staff %s tracked but has no grade", sc.StaffID)
		}
	}
	if team.Total < 0 || team.Total > 100 {
		return fmt.Errorf("team score out of range: %d", team.Total)
	}

	// Awarded categories must carry a winner; no-winner must not.
	for _, a := range awards {
		switch a.Status {
		case "awarded":
			if a.Winner == nil {
				return fmt.Errorf("category %s awarded without a winner", a.Category)
			}
		case "no-winner", "not-tracked":
			if a.Winner != nil {
				return fmt.Errorf("category %s has status %s but a winner", a.Category, a.Status)
			}
		default:
			return fmt.Errorf("category %s has unknown status %s", a.Category, a.Status)
		}
	}

	displayTopPerformers(scores, verbose)

	log.Println("result verification completed")
	return nil
}

// displayTopPerformers shows the highest scoring staff members.
func displayTopPerformers(scores []scoreResponse, verbose bool) {
	ranked := make([]scoreResponse, len(scores))
	copy(ranked, scores)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})

	topN := 10
	if len(ranked) < topN {
		topN = len(ranked)
	}

	log.Printf("top %d performers:", topN)
	for i := 0; i < topN; i++ {
		sc := ranked[i]
		log.Printf("   %d. %s - score: %d grade: %s stars: %d", i+1, sc.StaffID, sc.Total, sc.Grade, sc.Stars)
	}

	if verbose && len(ranked) > 0 {
		sum := 0
		for _, sc := range ranked {
			sum += sc.Total
		}
		log.Printf("score statistics: average=%.1f max=%d min=%d",
			float64(sum)/float64(len(ranked)), ranked[0].Total, ranked[len(ranked)-1].Total)
	}
}
