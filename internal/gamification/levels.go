package gamification

// levelTable maps ascending point thresholds to levels and badges. A user's
// level is the highest threshold not exceeding their points.
var levelTable = []struct {
	Threshold int
	Badge     string
}{
	{0, "Newcomer"},
	{100, "Scout"},
	{250, "Reporter"},
	{500, "Advocate"},
	{1000, "Guardian"},
	{2000, "Champion"},
}

// Level returns the 1-based level for a points total.
func Level(points int) int {
	level := 1
	for i, entry := range levelTable {
		if points >= entry.Threshold {
			level = i + 1
		}
	}
	return level
}

// Badge returns the badge name for a points total.
func Badge(points int) string {
	badge := levelTable[0].Badge
	for _, entry := range levelTable {
		if points >= entry.Threshold {
			badge = entry.Badge
		}
	}
	return badge
}

// ProgressPercent linearly interpolates the points between the current and
// next level thresholds, as a whole percentage. The top level pins at 100.
func ProgressPercent(points int) int {
	level := Level(points)
	if level >= len(levelTable) {
		return 100
	}

	current := levelTable[level-1].Threshold
	next := levelTable[level].Threshold
	if next == current {
		return 100
	}

	pct := (points - current) * 100 / (next - current)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}
