// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "os"

// sdkTestEnvVar lets integration tests pin the "active SDK" without
// depending on whatever happens to be installed on the test machine.
const sdkTestEnvVar = "VEX_TEST_SDK_VERSION"

// ActiveSDKVersion reports the SDK version Manifest.SDK constraints are
// checked against: the VEX_TEST_SDK_VERSION override when set, else
// the fall value passed in.
func ActiveSDKVersion(fall Version) Version {
	if s := os.Getenv(sdkTestEnvVar); s != "" {
		if v, err := ParseVersion(s); err == nil {
			return v
		}
	}
	return fall
}
