// Package discovery finds the externally controllable and observable
// elements of a scanned model.
//
// Inputs are flagged in the model text by a marker literal (DUMMY by
// default) placed where the engine would otherwise expect a time series,
// curve or pattern name. Each input tier is an independent rule over the
// section table:
//
//	tier 0  SYSTEM    ElapsedTime, always index 0
//	tier 1  GAGE      [RAINGAGES] rows sourced from TIMESERIES <marker>
//	tier 2  PUMP      [PUMPS] rows whose curve field is <marker>
//	tier 3  ORIFICE   orifices named next to <marker> in a [CONTROLS] line
//	tier 4  WEIR      weirs named next to <marker> in a [CONTROLS] line
//	tier 5  NODE      nodes with a <marker> pattern in [DWF]
//
// Discover concatenates the tiers in that order and numbers the result
// from 0 without gaps. Outputs need no marker: every storage unit, outfall,
// pump, orifice, weir and subcatchment is reported, in that class order.
//
// A marker reference to an element the model never declares is excluded and
// reported as a Warning. Warnings are data, not errors.
package discovery
