// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset is the registry of public climate data sources the
// recipes read: where each file lives, what format it is in, and what it
// is called on disk.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// ErrUnknown is returned for names that match no registry entry or template.
var ErrUnknown = errors.New("unknown dataset")

// Base URLs. Declared as vars so tests can substitute httptest servers.
var (
	jaxaBase   = "https://ads.nipr.ac.jp/vishop.ver1/data/graph/"
	nsidcBase  = "ftp://sidads.colorado.edu/DATASETS/NOAA/G02135/"
	piomasBase = "http://pscfiles.apl.washington.edu/zhang/PIOMAS/"
	volumeBase = "http://psc.apl.uw.edu/wordpress/wp-content/uploads/schweiger/ice_volume/"
	graceBase  = "https://podaac-tools.jpl.nasa.gov/drive/files/allData/tellus/L4/ice_mass/RL06.1/v03/mascon_CRI/"
	oisstBase  = "https://downloads.psl.noaa.gov/Datasets/noaa.oisst.v2.highres/"
	ersstBase  = "https://www.ncei.noaa.gov/pub/data/cmb/ersst/v5/netcdf/"
)

// graceRelease is the YYYYMM end month in the GRACE mass file names.
var graceRelease = "202311"

// SetGRACERelease sets the YYYYMM end month used to build the GRACE mass
// file URLs.
func SetGRACERelease(release string) error {
	if _, err := time.Parse("200601", release); err != nil || len(release) != 6 {
		return fmt.Errorf("GRACE release %q: want YYYYMM", release)
	}
	graceRelease = release
	return nil
}

// GRACERelease returns the configured GRACE release month.
func GRACERelease() string { return graceRelease }

func static() []types.Dataset {
	return []types.Dataset{
		{
			Name:        "jaxa-extent-n",
			URL:         jaxaBase + "plot_extent_n_v2.csv",
			Format:      types.FormatJAXACSV,
			FileName:    "plot_extent_n_v2.csv",
			Description: "JAXA/ADS Arctic sea ice extent, daily, one column per year since 2002",
			Homepage:    "https://ads.nipr.ac.jp/vishop/vishop-extent.html",
		},
		{
			Name:        "nsidc-daily-n",
			URL:         nsidcBase + "north/daily/data/N_seaice_extent_daily_v3.0.csv",
			Format:      types.FormatNSIDCDaily,
			FileName:    "N_seaice_extent_daily_v3.0.csv",
			Description: "NSIDC Sea Ice Index v3 Arctic daily extent",
			Homepage:    "ftp://sidads.colorado.edu/DATASETS/NOAA/G02135/",
		},
		{
			Name:        "nsidc-daily-s",
			URL:         nsidcBase + "south/daily/data/S_seaice_extent_daily_v3.0.csv",
			Format:      types.FormatNSIDCDaily,
			FileName:    "S_seaice_extent_daily_v3.0.csv",
			Description: "NSIDC Sea Ice Index v3 Antarctic daily extent",
			Homepage:    "ftp://sidads.colorado.edu/DATASETS/NOAA/G02135/",
		},
		{
			Name:        "nsidc-clim-n",
			URL:         nsidcBase + "north/daily/data/N_seaice_extent_climatology_1981-2010_v3.0.csv",
			Format:      types.FormatNSIDCClim,
			FileName:    "N_seaice_extent_climatology_1981-2010_v3.0.csv",
			Description: "NSIDC Arctic daily extent climatology 1981-2010 (mean, std, percentiles)",
			Homepage:    "ftp://sidads.colorado.edu/DATASETS/NOAA/G02135/",
		},
		{
			Name:        "nsidc-clim-s",
			URL:         nsidcBase + "south/daily/data/S_seaice_extent_climatology_1981-2010_v3.0.csv",
			Format:      types.FormatNSIDCClim,
			FileName:    "S_seaice_extent_climatology_1981-2010_v3.0.csv",
			Description: "NSIDC Antarctic daily extent climatology 1981-2010 (mean, std, percentiles)",
			Homepage:    "ftp://sidads.colorado.edu/DATASETS/NOAA/G02135/",
		},
		{
			Name:        "piomas-grid",
			URL:         piomasBase + "utilities/grid.dat",
			Format:      types.FormatPIOMASGrid,
			FileName:    "piomas_grid.dat",
			Description: "PIOMAS 120x360 grid longitudes and latitudes",
			Homepage:    "http://psc.apl.washington.edu/zhang/IDAO/data_piomas.html",
		},
		{
			Name:        "piomas-griddata",
			URL:         piomasBase + "utilities/griddata.dat",
			Format:      types.FormatPIOMASGridData,
			FileName:    "piomas_griddata.dat",
			Description: "PIOMAS grid cell edge lengths (htn, hte, hts, htw)",
			Homepage:    "http://psc.apl.washington.edu/zhang/IDAO/data_piomas.html",
		},
		{
			Name:        "grace-greenland",
			URL:         graceBase + "greenland_mass_200204_" + graceRelease + ".txt",
			Format:      types.FormatGRACE,
			FileName:    "greenland_mass.txt",
			Description: "GRACE/GRACE-FO Greenland ice sheet mass anomaly",
			Homepage:    "https://climate.nasa.gov/vital-signs/ice-sheets/",
		},
		{
			Name:        "grace-antarctica",
			URL:         graceBase + "antarctica_mass_200204_" + graceRelease + ".txt",
			Format:      types.FormatGRACE,
			FileName:    "antarctica_mass.txt",
			Description: "GRACE/GRACE-FO Antarctic ice sheet mass anomaly",
			Homepage:    "https://climate.nasa.gov/vital-signs/ice-sheets/",
		},
		{
			Name:        "nsidc-regional-n",
			URL:         nsidcBase + "seaice_analysis/Sea_Ice_Index_Regional_Daily_Data_G02135_v3.0.xlsx",
			Format:      types.FormatNSIDCRegional,
			FileName:    "Sea_Ice_Index_Regional_Daily_Data_G02135_v3.0.xlsx",
			Description: "NSIDC Sea Ice Index v3 daily extent per Arctic sea, one sheet per region",
			Homepage:    "ftp://sidads.colorado.edu/DATASETS/NOAA/G02135/seaice_analysis/",
		},
		{
			// The PSL timeseries tool generates this file on request; there
			// is no stable URL, so it must be placed in data/raw by hand.
			Name:        "psl-arctic-t925",
			Format:      types.FormatPSLMonthly,
			FileName:    "Arctic_T925_monthly.txt",
			Description: "NCEP/NCAR reanalysis 925 hPa air temperature, 70-90N monthly (PSL timeseries export)",
			Homepage:    "https://psl.noaa.gov/cgi-bin/data/timeseries/timeseries1.pl",
		},
	}
}

// template builds a dataset from the suffix of a templated name.
type template struct {
	prefix   string
	argLen   int
	describe string
	build    func(arg string) types.Dataset
}

func templates() []template {
	return []template{
		{
			prefix:   "piomas-heff-",
			argLen:   4,
			describe: "PIOMAS monthly mean sea ice thickness for a year (binary, gzip)",
			build: func(year string) types.Dataset {
				return types.Dataset{
					URL:         piomasBase + "data/v2.1/heff/heff.H" + year + ".gz",
					Format:      types.FormatPIOMASBinary,
					FileName:    "heff.H" + year + ".gz",
					Description: "PIOMAS monthly mean sea ice thickness " + year,
					Homepage:    "http://psc.apl.washington.edu/zhang/IDAO/data_piomas.html",
				}
			},
		},
		{
			prefix:   "piomas-volume-",
			argLen:   4,
			describe: "PIOMAS daily Arctic sea ice volume 1979 through a year",
			build: func(year string) types.Dataset {
				file := "PIOMAS.vol.daily.1979." + year + ".Current.v2.1.dat.gz"
				return types.Dataset{
					URL:         volumeBase + file,
					Format:      types.FormatPIOMASVolume,
					FileName:    file,
					Description: "PIOMAS daily Arctic sea ice volume 1979-" + year,
					Homepage:    "http://psc.apl.uw.edu/research/projects/arctic-sea-ice-volume-anomaly/",
				}
			},
		},
		{
			prefix:   "oisst-anom-",
			argLen:   4,
			describe: "NOAA OISST v2.1 daily SST anomaly for a year (NetCDF)",
			build: func(year string) types.Dataset {
				file := "sst.day.anom." + year + ".nc"
				return types.Dataset{
					URL:         oisstBase + file,
					Format:      types.FormatNetCDF,
					FileName:    file,
					Description: "NOAA OISST v2.1 daily SST anomaly " + year,
					Homepage:    "https://psl.noaa.gov/data/gridded/data.noaa.oisst.v2.highres.html",
				}
			},
		},
		{
			prefix:   "oisst-icec-",
			argLen:   4,
			describe: "NOAA OISST v2.1 daily sea ice concentration for a year (NetCDF)",
			build: func(year string) types.Dataset {
				file := "icec.day.mean." + year + ".nc"
				return types.Dataset{
					URL:         oisstBase + file,
					Format:      types.FormatNetCDF,
					FileName:    file,
					Description: "NOAA OISST v2.1 daily sea ice concentration " + year,
					Homepage:    "https://psl.noaa.gov/data/gridded/data.noaa.oisst.v2.highres.html",
				}
			},
		},
		{
			prefix:   "ersst-v5-",
			argLen:   6,
			describe: "NOAA ERSST v5 monthly SST for YYYYMM (NetCDF)",
			build: func(yyyymm string) types.Dataset {
				file := "ersst.v5." + yyyymm + ".nc"
				return types.Dataset{
					URL:         ersstBase + file,
					Format:      types.FormatNetCDF,
					FileName:    file,
					Description: "NOAA ERSST v5 monthly SST " + yyyymm,
					Homepage:    "https://www.ncei.noaa.gov/products/extended-reconstructed-sst",
				}
			},
		},
	}
}

// Lookup resolves a registry name, including templated names such as
// "piomas-heff-2018" or "ersst-v5-201801".
func Lookup(name string) (types.Dataset, error) {
	name = strings.TrimSpace(name)
	for _, ds := range static() {
		if ds.Name == name {
			return ds, nil
		}
	}
	for _, t := range templates() {
		if !strings.HasPrefix(name, t.prefix) {
			continue
		}
		arg := strings.TrimPrefix(name, t.prefix)
		if len(arg) != t.argLen {
			break
		}
		if _, err := strconv.Atoi(arg); err != nil {
			break
		}
		ds := t.build(arg)
		ds.Name = name
		return ds, nil
	}
	return types.Dataset{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Entry is a row in the registry listing. Templated entries show their
// name pattern instead of a URL.
type Entry struct {
	Name        string
	Format      types.DataFormat
	URL         string
	Description string
}

// List returns all static datasets and templates sorted by name.
func List() []Entry {
	var entries []Entry
	for _, ds := range static() {
		entries = append(entries, Entry{Name: ds.Name, Format: ds.Format, URL: ds.URL, Description: ds.Description})
	}
	for _, t := range templates() {
		placeholder := "YYYY"
		if t.argLen == 6 {
			placeholder = "YYYYMM"
		}
		sample := t.build(strings.Repeat("0", t.argLen))
		entries = append(entries, Entry{
			Name:        t.prefix + placeholder,
			Format:      sample.Format,
			URL:         strings.Replace(sample.URL, strings.Repeat("0", t.argLen), placeholder, 1),
			Description: t.describe,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// ByFileName returns the static dataset stored on disk as file.
func ByFileName(file string) (types.Dataset, bool) {
	for _, ds := range static() {
		if ds.FileName == file {
			return ds, true
		}
	}
	return types.Dataset{}, false
}

// Names returns the names of the static datasets, sorted. Templated
// datasets are not included.
func Names() []string {
	var names []string
	for _, ds := range static() {
		names = append(names, ds.Name)
	}
	sort.Strings(names)
	return names
}
