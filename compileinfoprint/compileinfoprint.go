// Package compileinfoprint is blank-imported by every ldsccts binary so that
// the first log line of a run names the commit it was built from.
package compileinfoprint

import "github.com/carbocation/ldsccts/compileinfo"

func init() {
	compileinfo.Log()
}
