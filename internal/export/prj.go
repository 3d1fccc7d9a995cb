package export

import (
	"os"
	"path/filepath"
	"strings"
)

// WGS84WKT is the ESRI projection text written next to every shapefile.
const WGS84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

// PRJPath returns the projection sidecar path for a shapefile.
func PRJPath(shpPath string) string {
	return strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
}

// WritePRJ writes the WGS-84 sidecar for shpPath.
func WritePRJ(shpPath string) error {
	return os.WriteFile(PRJPath(shpPath), []byte(WGS84WKT), 0o644)
}
