package loader

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxipulse/pkg/contracts/domain"
)

const zoneCSV = `"LocationID","Borough","Zone","service_zone"
1,"EWR","Newark Airport","EWR"
132,"Queens","JFK Airport","Airports"
138,"Queens","LaGuardia Airport","Airports"
264,"Unknown","NV","N/A"
`

func TestParseZones(t *testing.T) {
	zones, err := ParseZones(strings.NewReader(zoneCSV))
	require.NoError(t, err)
	require.Len(t, zones, 4)

	assert.Equal(t, domain.Zone{LocationID: 132, Borough: "Queens", Name: "JFK Airport"}, zones[1])
}

func TestParseZones_MissingColumn(t *testing.T) {
	_, err := ParseZones(strings.NewReader("LocationID,Zone\n1,Newark Airport\n"))
	assert.ErrorContains(t, err, "borough")
}

func TestZoneLoader_Load(t *testing.T) {
	srv, _ := newArchive(t, map[string]string{"taxi+_zone_lookup.csv": zoneCSV})

	zones, err := NewZoneLoader(testFetcher(), srv.URL+"/taxi+_zone_lookup.csv", nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, zones, 4)

	_, err = NewZoneLoader(testFetcher(), srv.URL+"/missing.csv", nil).Load(context.Background())
	assert.Error(t, err)
}
