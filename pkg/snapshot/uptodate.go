package snapshot

// Check compares a freshly taken snapshot against the prior one for the
// same root. Without a prior snapshot every present entry is reported as
// added and the result is marked as a first run, which is never up to date.
func Check(prior, current *Snapshot) (*ChangeSet, error) {
	if current == nil {
		return nil, ErrNilSnapshot
	}
	if prior == nil {
		return AllAdded(current), nil
	}
	return Diff(prior, current)
}

// IsUpToDate reports whether current shows no change against prior.
func IsUpToDate(prior, current *Snapshot) (bool, error) {
	cs, err := Check(prior, current)
	if err != nil {
		return false, err
	}
	return cs.UpToDate(), nil
}
