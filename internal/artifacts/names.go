// internal/artifacts/names.go
package artifacts

// Stable artifact names. CI jobs and humans look for these exact files.
const (
	InitialLoad       = "01-initial-load"
	GeneratedDesign   = "03-generated-design"
	AssembledView     = "04a-assembled-view"
	ExplodedView      = "04b-exploded-view"
	CutVisualization  = "05-cut-visualization"
	ErrorState        = "error-state"
	typeSelectionStem = "02-type-"
	otherTypeStem     = "08-"
	otherTypeSuffix   = "-result"
)

// TypeSelection names the viewport shot taken after selecting a furniture type.
func TypeSelection(furnitureType string) string {
	return SanitizeName(typeSelectionStem + furnitureType)
}

// TypeResult names the full page shot of a generated additional type.
func TypeResult(furnitureType string) string {
	return SanitizeName(otherTypeStem + furnitureType + otherTypeSuffix)
}
