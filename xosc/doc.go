// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package xosc defines the catalog data model: the closed set of catalog entity
kinds, the catalog-file tree, catalog references and directory locations.

Catalog files are decoded with a Parser. XMLParser reads the OpenSCENARIO
catalog document form:

	<OpenSCENARIO>
	  <FileHeader revMajor="1" revMinor="2" author="..." description="..."/>
	  <Catalog name="VehicleCatalog">
	    <Vehicle name="car" vehicleCategory="car">
	      <ParameterDeclarations>
	        <ParameterDeclaration name="MaxSpeedParam" parameterType="double" value="69.4"/>
	      </ParameterDeclarations>
	      <Performance maxSpeed="${MaxSpeedParam}" maxAcceleration="10" maxDeceleration="10"/>
	    </Vehicle>
	  </Catalog>
	</OpenSCENARIO>

Attribute values that may be parameterized are param.Value fields. An
entity's Specialize method resolves every such field against its declared
parameter defaults overlaid with the supplied parameters, and returns a copy
whose values are all literals.

Declarations may carry OpenSCENARIO value constraint groups; they are
translated to CEL and checked whenever a declared parameter is set.
*/
package xosc
