package lluv

// Column names used by radialmetric and radialshort tables. Names are
// case-sensitive.
const (
	LOND = "LOND" // Longitude (deg)
	LATD = "LATD" // Latitude (deg)
	VELU = "VELU" // Eastward velocity component (cm/s)
	VELV = "VELV" // Northward velocity component (cm/s)
	VFLG = "VFLG" // Vector flag bitmask, 0 is good
	ESPC = "ESPC" // Spatial quality, standard deviation of velocities (cm/s)
	MAXV = "MAXV" // Maximum velocity (cm/s)
	MINV = "MINV" // Minimum velocity (cm/s)
	EDVC = "EDVC" // Velocity count
	ERSC = "ERSC" // Spatial count
	XDST = "XDST" // X distance from origin (km)
	YDST = "YDST" // Y distance from origin (km)
	RNGE = "RNGE" // Range (km)
	BEAR = "BEAR" // Bearing, clockwise from true north (deg)
	VELO = "VELO" // Radial velocity (cm/s)
	HEAD = "HEAD" // Direction of the velocity vector (deg)
	SPRC = "SPRC" // Spectra range cell

	MSEL = "MSEL" // MUSIC selection: 1 single, 2 first of dual, 3 second of dual bearing
	MSR1 = "MSR1" // Single bearing DOA peak power (dB)
	MDR1 = "MDR1" // Dual bearing 1 DOA peak power (dB)
	MDR2 = "MDR2" // Dual bearing 2 DOA peak power (dB)
	MSW1 = "MSW1" // Single bearing DOA half power width (deg)
	MDW1 = "MDW1" // Dual bearing 1 DOA half power width (deg)
	MDW2 = "MDW2" // Dual bearing 2 DOA half power width (deg)
	MSP1 = "MSP1" // Single bearing MUSIC signal power (dB)
	MDP1 = "MDP1" // Dual bearing 1 MUSIC signal power (dB)
	MDP2 = "MDP2" // Dual bearing 2 MUSIC signal power (dB)
	MA3S = "MA3S" // Monopole antenna SNR
)
