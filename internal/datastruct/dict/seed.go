// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "github.com/zyhnesmr/dictkv/pkg/hashfn"

// hashSeed is the process-wide seed every string-keyed Dict's Hash
// callback should fold into hashfn.Sum64, per spec §6: "unset seed means
// a zero seed", read unsynchronized like the other process-wide policy
// flags.
var hashSeed hashfn.Seed

// SetHashSeed installs the process-wide hash seed. Call once during
// startup, before any Dict is built or shared across goroutines.
func SetHashSeed(seed hashfn.Seed) { hashSeed = seed }

// HashSeed returns the current process-wide hash seed.
func HashSeed() hashfn.Seed { return hashSeed }
