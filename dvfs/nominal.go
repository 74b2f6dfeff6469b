package dvfs

import (
	"soc_dvfs/log"
)

// coreNominalIndex rounds the silicon nominal level, limited by the board EDP
// limit when one is set, down to a ladder step. It returns -1 when the level
// is below the lowest step.
func coreNominalIndex(ladder Ladder, siliconMV, edpMV int) int {
	mv := siliconMV
	if edpMV > 0 && edpMV < mv {
		mv = edpMV
	}
	i := ladder.FloorIndex(mv)
	if i < 0 {
		log.Errorf("DVFS: unable to adjust core dvfs table to nominal voltage %d", mv)
	}
	return i
}

// drivingNominalMV finds the highest step of the driving rail whose floor on
// the dependent rail stays within the dependent rail's nominal and maximum,
// then clips it to the silicon hint.
func drivingNominalMV(rel *Relationship, driver, dependent *Rail, hintMV int) (int, error) {
	l := driver.Ladder
	i := 0
	for ; i < l.Len(); i++ {
		floor := rel.Floor(l, l[i], dependent.NominalMV)
		if floor > dependent.NominalMV || floor > dependent.MaxMV {
			break
		}
	}
	if i == 0 {
		return 0, fatalf("nominal", driver.Name, ErrNominalUnreachable,
			"lowest step %d mV needs %s above %d mV", l.Bottom(), dependent.Name, dependent.NominalMV)
	}
	mv := l[i-1]
	log.Infof("DVFS: %s mv limited by %s nominal %d mV: %d mV", driver.Name, dependent.Name, dependent.NominalMV, mv)
	if mv < driver.MinMV {
		return 0, fatalf("nominal", driver.Name, ErrNominalUnreachable,
			"%d mV below minimum %d mV", mv, driver.MinMV)
	}
	if hintMV > 0 && hintMV < mv {
		mv = hintMV
	}
	return mv, nil
}

// tableNominalIndex narrows the driving rail's nominal to the steps its
// frequency table actually uses: the scan stops at an undefined frequency,
// at a step above mv, or once the clock's maximum rate is reached.
func tableNominalIndex(e *Entry, ladder Ladder, mv int, maxRate int64) (int, error) {
	i := 0
	for ; i < len(e.Freqs) && i < ladder.Len(); i++ {
		if e.Freqs[i] == 0 || mv < ladder[i] {
			break
		}
		if maxRate <= e.Freqs[i]*e.Mult {
			i++
			break
		}
	}
	if i == 0 {
		return 0, fatalf("nominal", e.Clock, ErrNominalUnreachable,
			"%s runs at no step up to %d mV", e, mv)
	}
	return i - 1, nil
}
