package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// PondModel declares one marked rain gage and one storage node. It
// discovers two inputs (elapsed time, R1) and one output (POND).
const PondModel = `[TITLE]
Single pond fixture

[RAINGAGES]
;;Name  Format     Interval  SCF  Source
R1      INTENSITY  0:05      1.0  TIMESERIES  DUMMY

[STORAGE]
;;Name  Elev  MaxDepth  InitDepth  Shape       Coeff
POND    100   10        0          FUNCTIONAL  1000  0  0  0  0
`

// FullModel exercises every discovery tier, both warning paths and every
// output class.
const FullModel = `[TITLE]
;;Project Title/Notes
Bridge fixture

[OPTIONS]
FLOW_UNITS    CMS
ROUTING_STEP  0:00:30

[RAINGAGES]
;;Name  Format     Interval  SCF  Source
RG1     INTENSITY  1:00      1.0  TIMESERIES  DUMMY
RG2     INTENSITY  1:00      1.0  TIMESERIES  TS_STORM
RG3     VOLUME     0:15      1.0  TIMESERIES  DUMMY

[SUBCATCHMENTS]
;;Name  Gage  Outlet  Area  Imperv  Width  Slope  CurbLen
S1      RG1   J1      10    50      500    0.5    0
S2      RG2   J1      5     25      300    0.5    0

[SUBAREAS]
S1  0.01  0.1  0.05  0.05  25  OUTLET
S2  0.01  0.1  0.05  0.05  25  OUTLET

[INFILTRATION]
S1  3.0  0.5  4  7  0
S2  3.0  0.5  4  7  0

[JUNCTIONS]
;;Name  Elev  MaxDepth  InitDepth  SurDepth  Aponded
J1      100   5         0          0         0
J2      98    5         0          0         0

[OUTFALLS]
OUT1  90  FREE  NO

[STORAGE]
POND  95  10  0  FUNCTIONAL  1000  0  0  0  0
TANK  96  8   0  FUNCTIONAL  500   0  0  0  0

[CONDUITS]
C1  J1  J2  400  0.01  0  0  0  0

[PUMPS]
;;Name  From  To  Curve    Status  Startup  Shutoff
P1      POND  J2  DUMMY    ON      0        0
P2      TANK  J2  PCURVE1  ON      0        0

[ORIFICES]
OR1  POND  J2  SIDE  0  0.65  NO  0
OR2  TANK  J2  SIDE  0  0.65  NO  0

[WEIRS]
W1  J2  OUT1  TRANSVERSE  0  3.33  NO  0  0

[XSECTIONS]
C1   CIRCULAR   1    0  0  0  1
OR1  CIRCULAR   0.5  0  0  0
OR2  CIRCULAR   0.5  0  0  0
W1   RECT_OPEN  1    2  0  0

[CONTROLS]
RULE R1
IF NODE POND DEPTH > 5
THEN ORIFICE OR1 SETTING = CURVE DUMMY

RULE R2
IF NODE J2 DEPTH > 3
THEN WEIR W1 SETTING = CURVE DUMMY

RULE R3
IF NODE J2 DEPTH > 3
THEN ORIFICE GHOST SETTING = CURVE DUMMY

[DWF]
;;Node  Constituent  Baseline  Patterns
J1      FLOW         1.0       DUMMY  ""     ""  ""
J1      BOD          5.0       ""     DUMMY  ""  ""
J2      FLOW         0.5       DAILY
NOPE    FLOW         1.0       DUMMY
`

// WriteFile writes content under dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
