package statistic

// grouping is a user's events folded per catalog key.
type grouping struct {
	visits         int
	materialEvents int
	materials      map[string]int // by material ID
	practices      map[string]PracticeCount
}

func foldGroups(rows []GroupRow) grouping {
	g := grouping{
		materials: make(map[string]int),
		practices: make(map[string]PracticeCount),
	}
	for _, row := range rows {
		switch row.Type {
		case TypeVisit:
			g.visits += row.Count
		case TypeMaterial:
			g.materialEvents += row.Count
			g.materials[row.Key] += row.Count
		case TypePracticeAttempt:
			pc := g.practices[row.Key]
			pc.Attempted += row.Count
			g.practices[row.Key] = pc
		case TypePracticeCompleted:
			pc := g.practices[row.Key]
			pc.Completed += row.Count
			g.practices[row.Key] = pc
		}
	}
	return g
}

// buildSummary reconciles the grouped events against the catalogs. Every catalog title and every
// code of the universe gets a key; events pointing outside the catalogs still count in the raw
// totals but never in the reconciled maps.
func buildSummary(catalog []CatalogMaterial, codes []string, g grouping) Summary {
	sum := Summary{
		TotalVisits:             g.visits,
		TotalMaterialsAvailable: len(catalog),
		TotalMaterialsAccessed:  g.materialEvents,
		MaterialAccessCount:     make(map[string]int, len(catalog)),
		TotalPracticesAvailable: len(codes),
		PracticeCount:           make(map[string]PracticeCount, len(codes)),
	}

	for _, mat := range catalog {
		cnt := g.materials[mat.ID]
		sum.MaterialAccessCount[mat.Title] += cnt
		if cnt > 0 {
			sum.AccessedMaterialsCount++
		}
	}

	for _, code := range codes {
		if _, seen := sum.PracticeCount[code]; seen {
			continue
		}
		pc := g.practices[code]
		sum.PracticeCount[code] = pc
		if pc.Completed > 0 {
			sum.CompletedPracticesCount++
		}
	}
	for _, pc := range g.practices {
		sum.TotalPracticeAttempts += pc.Attempted
		sum.TotalPracticesCompleted += pc.Completed
	}

	sum.CompletionRateMaterials = rate(sum.AccessedMaterialsCount, sum.TotalMaterialsAvailable)
	sum.CompletionRatePractices = rate(sum.CompletedPracticesCount, sum.TotalPracticesAvailable)
	return sum
}

func buildProgress(materials, codes int, touched TouchedCounts) Progress {
	// totals may come from a cached catalog older than the live tables the touched counts read
	touched.Materials = clamp(touched.Materials, materials)
	touched.CompletedPractices = clamp(touched.CompletedPractices, codes)
	return Progress{
		TotalMaterialsAvailable: materials,
		AccessedMaterialsCount:  touched.Materials,
		TotalPracticesAvailable: codes,
		CompletedPracticesCount: touched.CompletedPractices,
		CompletionRateMaterials: rate(touched.Materials, materials),
		CompletionRatePractices: rate(touched.CompletedPractices, codes),
	}
}

func clamp(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}

// rate returns n/d as a percentage, 0 when d is 0.
func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
