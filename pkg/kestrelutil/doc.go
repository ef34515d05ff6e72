/******************************************************************************\
* Kestrel                                                                      *
*                                                                              *
* Copyright 2020-2026 Leandro Motta Barros                                    *
* Licensed under the MIT license (see LICENSE.txt for details)                *
\******************************************************************************/

// The kestrelutil package contains assorted utilities used in various other
// Kestrel packages. Now, that's a clever way of having a "util" package
// without having a "util" package!
package kestrelutil
