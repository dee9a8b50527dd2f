// SPDX-License-Identifier: MIT
package model

import "testing"

// TestPermissionMonotonicity covers spec's permission-monotonicity
// invariant: if userA.permissions is a superset of userB.permissions
// then every gate that passes for B passes for A; SuperAdmin implies
// all gates pass.
func TestPermissionMonotonicity(t *testing.T) {
	gates := []Permission{PermissionAdmin, PermissionJob, PermissionReports}

	b := PermissionJob
	a := PermissionJob | PermissionReports // superset of b

	for _, g := range gates {
		if Has(b, g) && !Has(a, g) {
			t.Fatalf("gate %d passes for B=%d but not for superset A=%d", g, b, a)
		}
	}
}

func TestSuperAdminImpliesEveryGate(t *testing.T) {
	for _, g := range []Permission{PermissionAdmin, PermissionJob, PermissionReports, PermissionSuperAdmin} {
		if !Has(PermissionSuperAdmin, g) {
			t.Fatalf("Has(SuperAdmin, %d) = false, want true", g)
		}
	}
}

func TestHasAnyEmptyRequirementAlwaysPasses(t *testing.T) {
	if !HasAny(PermissionNone, PermissionNone) {
		t.Fatalf("HasAny(None, None) = false, want true (no requirement)")
	}
	if !HasAny(PermissionJob, PermissionNone) {
		t.Fatalf("HasAny(Job, None) = false, want true (no requirement)")
	}
}

func TestHasAnyRequiresAtLeastOneSharedBit(t *testing.T) {
	if HasAny(PermissionJob, PermissionAdmin) {
		t.Fatalf("HasAny(Job, Admin) = true, want false")
	}
	if !HasAny(PermissionJob|PermissionAdmin, PermissionAdmin) {
		t.Fatalf("HasAny(Job|Admin, Admin) = false, want true")
	}
}
