// SPDX-License-Identifier: GPL-3.0-or-later

package nntp

// Unit is a type not containing any value.
//
// The dial pipeline starts from [Unit] because the endpoint is injected
// by [NewEndpointFunc] rather than passed as input.
type Unit struct{}
