package convert

// Artifact download names.
const (
	ArtifactCSV     = "final_branches.csv"
	ArtifactDXF     = "processed_output.dxf"
	ArtifactPreview = "dxf_preview.jpg"
	ArtifactGeoJSON = "network.geojson"
	ArtifactReport  = "report.docx"
)

// AllArtifacts lists every artifact a conversion can produce.
var AllArtifacts = []string{
	ArtifactCSV,
	ArtifactDXF,
	ArtifactPreview,
	ArtifactGeoJSON,
	ArtifactReport,
}

var contentTypes = map[string]string{
	ArtifactCSV:     "text/csv",
	ArtifactDXF:     "application/dxf",
	ArtifactPreview: "image/jpeg",
	ArtifactGeoJSON: "application/geo+json",
	ArtifactReport:  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentType returns the MIME type of an artifact, or "" if name is not
// an artifact.
func ContentType(name string) string {
	return contentTypes[name]
}

// IsArtifact reports whether name is a known artifact.
func IsArtifact(name string) bool {
	_, ok := contentTypes[name]
	return ok
}
