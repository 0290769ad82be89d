package service

// AssertOwnership fails with ErrPermissionDenied unless requesterID owns the resource.
func AssertOwnership(ownerID, requesterID uint) error {
	if ownerID != requesterID {
		return ErrPermissionDenied
	}
	return nil
}
